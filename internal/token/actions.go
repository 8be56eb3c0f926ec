package token

// Action names the call type a token authorizes. The name is the first part
// of the canonical HMAC message, so tokens are never interchangeable across
// actions: a valid PING token cannot authorize a REPORT.
type Action string

const (
	ActionAuth       Action = "AUTH"
	ActionAuthV3     Action = "AUTHv3"
	ActionJoin       Action = "JOIN"
	ActionJoinV3     Action = "JOINv3"
	ActionReport     Action = "REPORT"
	ActionReportV3   Action = "REPORTv3"
	ActionCreate     Action = "CREATE"
	ActionPing       Action = "PING"
	ActionRename     Action = "RENAME"
	ActionEventsList Action = "EVENTS_LIST"
	ActionUpgrade1   Action = "V3_UPGRADE_STEP_1"
	ActionUpgrade2   Action = "V3_UPGRADE_STEP_2"
)

// ProtocolVersion selects which signed field set and action names an
// installation speaks. V1 identified users by numeric id; V3 switched to
// usernames and added the eventSlug linkage. Both stay addressable during
// migration windows, although the V1 report surface is retired.
type ProtocolVersion int

const (
	ProtocolV1 ProtocolVersion = 1
	ProtocolV3 ProtocolVersion = 3
)

func (v ProtocolVersion) AuthAction() Action {
	if v == ProtocolV1 {
		return ActionAuth
	}
	return ActionAuthV3
}

func (v ProtocolVersion) JoinAction() Action {
	if v == ProtocolV1 {
		return ActionJoin
	}
	return ActionJoinV3
}

func (v ProtocolVersion) ReportAction() Action {
	if v == ProtocolV1 {
		return ActionReport
	}
	return ActionReportV3
}

func (v ProtocolVersion) String() string {
	if v == ProtocolV1 {
		return "v1"
	}
	return "v3"
}
