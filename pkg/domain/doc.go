/*
Package domain contains the core domain models of the sweep orchestrator.

It defines the scalar values that parameters can take, the immutable run
configuration produced for every point of a parameter space, the result of
dispatching one configuration to an external program, and the error taxonomy
shared by every other package. This package is kept pure and free of I/O.

# Key Entities

  - Value: A primitive parameter value (string, int, float or bool).
  - Configuration: An ordered, immutable mapping from parameter name to Value.
  - Program: The external training/attack program a sweep targets.
  - RunResult: The outcome of one dispatched configuration.
  - Progress: A resumable snapshot of how far a sweep has advanced.
*/
package domain
