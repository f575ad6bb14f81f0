package botinho

// Version is overridden at build time with -ldflags "-X github.com/claytonlovin/Botinho.Version=...".
var Version = "0.1.0-dev"
