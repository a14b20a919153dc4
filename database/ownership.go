package database

// The EffectiveCompanyID methods feed the authorization engine's instance
// checks. Resources without a direct company column resolve their tenant
// through the FAT they hang off; callers must have the FAT association
// loaded before the check.

func (c *Company) EffectiveCompanyID() *uint {
	id := c.ID
	return &id
}

func (u *User) EffectiveCompanyID() *uint { return u.CompanyID }

func (tc *TelecomCenter) EffectiveCompanyID() *uint { return tc.CompanyID }

func (f *FAT) EffectiveCompanyID() *uint { return f.CompanyID }

// EffectiveCompanyID requires the FAT association to be preloaded
func (s *Subscription) EffectiveCompanyID() *uint { return s.FAT.CompanyID }

func (t *SupportTicket) EffectiveCompanyID() *uint { return t.CompanyID }

// AssignedStaffID implementations expose the current assignee of a work item

func (s *Subscription) AssignedStaffID() *uint { return s.AssignedInstallerID }

func (t *SupportTicket) AssignedStaffID() *uint { return t.AssignedSupportID }
