package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/palladium-stack/plmdash/internal/model"
)

// Widget messages carry one render into the Bubble Tea event loop.
type (
	LastUpdatedMsg  struct{ Stamp string }
	HealthMsg       struct{ View model.HealthView }
	ResourcesMsg    struct{ View model.ResourcesView }
	NodeInfoMsg     struct{ View model.NodeInfoView }
	HashrateMsg     struct{ View model.HashrateView }
	BlocksMsg       struct{ View model.BlocksView }
	PeersMsg        struct{ View model.PeersView }
	IndexerStatsMsg struct{ View model.IndexerStatsView }
	ServersMsg      struct{ View model.ServersView }
)

// Sender delivers messages to a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramView is a model.View that forwards every render to a Bubble Tea
// program, so state is only ever touched by the event loop.
type ProgramView struct {
	sender Sender
}

var _ model.View = (*ProgramView)(nil)

// NewProgramView returns a view that sends renders to s.
func NewProgramView(s Sender) *ProgramView {
	return &ProgramView{sender: s}
}

func (v *ProgramView) SetLastUpdated(stamp string) { v.sender.Send(LastUpdatedMsg{Stamp: stamp}) }

func (v *ProgramView) RenderHealth(h model.HealthView) { v.sender.Send(HealthMsg{View: h}) }

func (v *ProgramView) RenderResources(r model.ResourcesView) { v.sender.Send(ResourcesMsg{View: r}) }

func (v *ProgramView) RenderNodeInfo(n model.NodeInfoView) { v.sender.Send(NodeInfoMsg{View: n}) }

func (v *ProgramView) RenderNetworkHashrate(h model.HashrateView) {
	v.sender.Send(HashrateMsg{View: h})
}

func (v *ProgramView) RenderRecentBlocks(b model.BlocksView) { v.sender.Send(BlocksMsg{View: b}) }

func (v *ProgramView) RenderPeers(p model.PeersView) { v.sender.Send(PeersMsg{View: p}) }

func (v *ProgramView) RenderIndexerStats(s model.IndexerStatsView) {
	v.sender.Send(IndexerStatsMsg{View: s})
}

func (v *ProgramView) RenderIndexerServers(s model.ServersView) { v.sender.Send(ServersMsg{View: s}) }
