/*
Package domain contains the core domain models of the Botinho conversation engine.

It defines the dialog tree (a tagged variant of node kinds), the per-user Session snapshot,
the assessment state and its final result. This package is kept pure and free of I/O,
persistence and transport concerns, following Hexagonal Architecture principles.

# Key Entities

  - Node: a point in the dialog tree (Options, Input, Handoff or Terminal).
  - Session: the runtime snapshot of one user's walk (current node, history, visit phase).
  - Assessment: the in-progress proficiency assessment of one user.
  - AssessmentResult: the frozen outcome of a completed assessment.
*/
package domain
