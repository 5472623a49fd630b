/*
Package domain contains the core models of a qflip run.

It is kept free of I/O: gateways, renderers and stores live behind the interfaces in
package ports and are implemented under pkg/adapters.

# Key Entities

  - Counts: outcome label ("0" tails, "1" heads) to number of shots.
  - Distribution: outcome label to probability, as reported by an execution backend.
  - Execution: a backend's answer for one circuit run.
  - Run: the full record of a classical vs. quantum comparison.
  - LifecycleHooks: callbacks fired around each stage of a run.
*/
package domain
