package agreement

// OverallStatus folds per-participant statuses into one agreement status.
// The fold is order-independent and recomputed on every query: any
// rejection wins, then any exit, then all-accepted, else pending.
func (a *Agreement) OverallStatus() ParticipantStatus {
	anyExited := false
	allAccepted := true
	for _, p := range a.Participants {
		switch p.Status {
		case StatusRejected:
			return StatusRejected
		case StatusExited:
			anyExited = true
			allAccepted = false
		case StatusPending:
			allAccepted = false
		}
	}
	if anyExited {
		return StatusExited
	}
	if allAccepted && len(a.Participants) > 0 {
		return StatusAccepted
	}
	return StatusPending
}
