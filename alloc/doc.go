// Package alloc implements the bed and nurse allocation engine for
// wardsched.
//
// # Reading Guide
//
// Start with these three files to understand the run pipeline:
//   - patient.go: Patient lifecycle (pending → scored → assigned/waitlisted/no_bed)
//   - orchestrator.go: The stage machine that drives one batch run
//   - scorer.go: Two-stage risk scoring (bed-need probability gating length of stay)
//
// # Architecture
//
// One run flows through three stages over an AllocationContext:
//   - Risk scoring: coefficient models from the artifact (model_artifact.go)
//     score every patient in CSV order
//   - Room assignment: roomalloc.go filters eligible free rooms and commits
//     either an assignment or a waitlist entry (waitlist.go)
//   - Nurse scheduling: nursealloc.go tiles occupancy windows with visit
//     slots over the cross-room timeline (timeline.go)
//
// Sub-packages:
//   - alloc/events/: typed progress events and sinks
//   - alloc/feedback/: shift feedback store and load-bias computation
//
// Intake (intake.go, roster.go) loads the patient CSV and the room and
// nurse rosters; views.go renders the run's JSON output documents.
package alloc
