package domain

// WorkspaceConfig holds the per-guild ticket settings written by setup.
type WorkspaceConfig struct {
	TicketChannelID string
	CategoryID      string
	SupportRoleID   *string
	LogChannelID    *string
}

// Configured reports whether setup has run for the workspace.
func (c WorkspaceConfig) Configured() bool {
	return c.TicketChannelID != "" && c.CategoryID != ""
}

// SupportRole returns the configured support role id, or "".
func (c WorkspaceConfig) SupportRole() string {
	if c.SupportRoleID == nil {
		return ""
	}
	return *c.SupportRoleID
}

// LogChannel returns the configured audit log channel id, or "".
func (c WorkspaceConfig) LogChannel() string {
	if c.LogChannelID == nil {
		return ""
	}
	return *c.LogChannelID
}

// Equal compares two configs by value.
func (c WorkspaceConfig) Equal(other WorkspaceConfig) bool {
	return c.TicketChannelID == other.TicketChannelID &&
		c.CategoryID == other.CategoryID &&
		equalOptional(c.SupportRoleID, other.SupportRoleID) &&
		equalOptional(c.LogChannelID, other.LogChannelID)
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
