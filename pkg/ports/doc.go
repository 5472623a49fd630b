/*
Package ports defines the driven ports (interfaces) of a qflip run.

These interfaces decouple the experiment driver from the quantum backend, the chart
renderer, the credential source and run persistence, so each can be replaced by a test
double or an alternative adapter.

# Key Interfaces

  - ExecutionGateway: runs a circuit N times and reports a probability distribution.
  - Renderer: turns outcome counts into a saved chart.
  - CredentialProvider: supplies the API token for remote execution.
  - RunStore: persists run records for later inspection.
*/
package ports
