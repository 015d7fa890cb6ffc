// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

/*
Package gc contains the functions needed to run snapshot-retention garbage
collection over a forest of versioned paths sharing content-addressed block
storage.

The Service implementation in gc/service.go runs the collection state machine:
it selects the retention window of every path, marks everything reachable from
the preserved snapshot roots into one shared discovered-node set, groups the
discovered ordinary nodes by owning block, and sends idempotent
preserve-and-compact instructions to the block servers responsible for each
block. Block servers delete nodes absent from the instruction's live set; the
run itself performs no destructive action and is safe to abort and rerun at
any point.
*/
package gc
