package creditline

// AvailableAmount is granted − frozen − used. Reserve keeps it ≥ 0.
func (c *CreditLine) AvailableAmount() int64 {
	return c.GrantedAmount - c.FrozenAmount - c.UsedAmount
}

// IsOpened reports whether the line was approved and may back loans.
func (c *CreditLine) IsOpened() bool { return c.Status == StatusApproved }

// Reserve freezes credit for an approved-but-undisbursed loan.
func (c *CreditLine) Reserve(amount int64) error {
	if amount <= 0 {
		return ErrValidation
	}
	if amount > c.AvailableAmount() {
		return ErrInsufficientCredit
	}
	c.FrozenAmount += amount
	return nil
}

// Release returns frozen credit after a loan is cancelled.
func (c *CreditLine) Release(amount int64) error {
	if amount <= 0 || amount > c.FrozenAmount {
		return ErrValidation
	}
	c.FrozenAmount -= amount
	return nil
}

// Consume moves credit from frozen to used at disbursement. Used amount
// is cumulative principal ever disbursed; it never decreases, even once
// the loan is fully repaid.
func (c *CreditLine) Consume(amount int64) error {
	if amount <= 0 || amount > c.FrozenAmount {
		return ErrValidation
	}
	c.FrozenAmount -= amount
	c.UsedAmount += amount
	return nil
}

// ActionByApprover returns the workflow slot for an identity, or nil.
func (c *CreditLine) ActionByApprover(approverID string) *ApproverAction {
	for i := range c.Approvals {
		if c.Approvals[i].ApproverID == approverID {
			return &c.Approvals[i]
		}
	}
	return nil
}

// GrantedFromProposals is the conservative bound over all responses: the
// minimum proposed amount, defined only once every approver responded.
func (c *CreditLine) GrantedFromProposals() int64 {
	var min int64
	for i, a := range c.Approvals {
		if i == 0 || a.ProposedAmount < min {
			min = a.ProposedAmount
		}
	}
	return min
}

// AllResponded reports whether every workflow slot has a response.
func (c *CreditLine) AllResponded() bool {
	for _, a := range c.Approvals {
		if !a.Responded {
			return false
		}
	}
	return len(c.Approvals) > 0
}

// HasParticipant reports whether the identity is on the snapshot list.
func (c *CreditLine) HasParticipant(identityID string) bool {
	for _, p := range c.Participants {
		if p.IdentityID == identityID {
			return true
		}
	}
	return false
}
