// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package reliability keeps track of gateway exchanges for reconciliation.

The gateway client never retries: a charge that timed out may or may not
have been executed by the gateway. The tracker records what happened to
each request serial number (REQ_SN) so the caller can decide, for example
by querying the gateway later, instead of resending blindly.

# Exchange Tracker

	tracker := reliability.NewExchangeTracker(24 * time.Hour)

	tracker.Track(serial, "300006")
	tracker.MarkSending(serial)
	// ...
	tracker.RecordResult(serial, "0000")   // or RecordError / RecordRejected

	for _, ex := range tracker.Unsettled() {
	    // sent but never verified: reconcile with the gateway
	}

# Duplicate Detection

Inbound documents such as notifications can arrive more than once. Their
content hash is remembered for the duplicate window:

	hash := reliability.ComputeDocumentHash(raw)
	if tracker.IsDuplicate(hash) {
	    return
	}
	tracker.MarkReceived(hash)

The tracker runs no background goroutine; call Prune periodically to
drop settled exchanges and expired duplicate entries.
*/
package reliability
