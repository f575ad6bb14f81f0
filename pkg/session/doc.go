/*
Package session implements the session registry.

The Manager owns the lifecycle of every identity's dialog session: it creates
a session on first contact, routes each inbound message through the dialog
machine, delivers the replies and only then commits the new state. Work for
one identity is serialized by a ref-counted local mutex and, across replicas,
an optional distributed lock.
*/
package session
