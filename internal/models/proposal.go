package models

// ProposalStatus is the lifecycle state of a proposal.
type ProposalStatus string

const (
	ProposalDraft    ProposalStatus = "rascunho"
	ProposalSent     ProposalStatus = "enviada"
	ProposalApproved ProposalStatus = "aprovada"
	ProposalRejected ProposalStatus = "recusada"
	ProposalExpired  ProposalStatus = "expirada"
)

// Label returns the display label of a status.
func (s ProposalStatus) Label() string {
	switch s {
	case ProposalDraft:
		return "Rascunho"
	case ProposalSent:
		return "Enviada"
	case ProposalApproved:
		return "Aprovada"
	case ProposalRejected:
		return "Recusada"
	case ProposalExpired:
		return "Expirada"
	default:
		return string(s)
	}
}
