package domain

// Action is a requested operation evaluated against a role and the actor's
// relationship to the resource.
type Action int

const (
	ActionView Action = iota
	ActionCreateDefect
	ActionEditDefect
	ActionComment
	ActionAttach
	ActionTransition
	ActionAssign
	ActionManageProjects
	ActionViewReports
)

// Relationship describes how the actor relates to the defect under access.
type Relationship int

const (
	RelationNone Relationship = iota
	RelationCreator
	RelationAssignee
)

// Allow is the single policy-evaluation point. Services call it before any
// mutation; handlers never decide access on their own. The terminal-status
// restriction on transitions is a separate check on top of this (see
// DefectStatus.IsTerminal), since it depends on the transition target, not
// the action alone.
func Allow(role string, rel Relationship, action Action) bool {
	switch role {
	case RoleManager:
		return true
	case RoleObserver:
		return action == ActionView || action == ActionViewReports
	case RoleEngineer:
		switch action {
		case ActionView, ActionCreateDefect:
			return true
		case ActionEditDefect, ActionComment, ActionAttach:
			return rel == RelationCreator || rel == RelationAssignee
		case ActionTransition:
			return rel == RelationAssignee
		default:
			return false
		}
	default:
		return false
	}
}
