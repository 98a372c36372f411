package planner

import "github.com/windlayer/matcher/internal/state"

// Operation is the sum-type of window-manipulation commands the planner
// emits (§9 "dynamic dispatch -> tagged variants"). The executor (out of
// core scope, §1/§6) matches exhaustively over Kind.
type Kind string

const (
	KindMoveToMonitor   Kind = "MoveToMonitor"
	KindMoveToWorkspace Kind = "MoveToWorkspace"
	KindMaximize        Kind = "Maximize"
	KindUnmaximize      Kind = "Unmaximize"
	KindPlace           Kind = "Place"
	KindMove            Kind = "Move"
	KindMinimize        Kind = "Minimize"
	KindSetFullscreen   Kind = "SetFullscreen"
)

// Operation is an ordered step in a plan. Only the fields relevant to Kind
// are meaningful; the rest are zero.
type Operation struct {
	Kind       Kind
	Monitor    int
	Workspace  int
	Rect       state.Rect
	Maximized  state.Maximize
	Fullscreen bool
}

func moveToMonitor(idx int) Operation   { return Operation{Kind: KindMoveToMonitor, Monitor: idx} }
func moveToWorkspace(idx int) Operation { return Operation{Kind: KindMoveToWorkspace, Workspace: idx} }
func maximize(m state.Maximize) Operation { return Operation{Kind: KindMaximize, Maximized: m} }
func unmaximize() Operation              { return Operation{Kind: KindUnmaximize} }
func place(r state.Rect) Operation       { return Operation{Kind: KindPlace, Rect: r} }
func minimize() Operation                { return Operation{Kind: KindMinimize} }
func setFullscreen(v bool) Operation     { return Operation{Kind: KindSetFullscreen, Fullscreen: v} }
