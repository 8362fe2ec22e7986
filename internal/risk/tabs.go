package risk

import "time"

// TabStatus is the per-tab login/risk state tracked while the vault UI runs.
type TabStatus struct {
	URL          string
	HasLoginForm bool
	Assessment   *Assessment
	UpdatedAt    time.Time
}

// TabTracker owns the per-tab status map. A single goroutine holds the map
// and all access goes through its command channel, so there is no shared
// memory between callers.
type TabTracker struct {
	cmds chan tabCommand
	done chan struct{}
}

type tabCommand struct {
	op    string // "set", "get", "delete"
	tabID int
	st    TabStatus
	reply chan tabReply
}

type tabReply struct {
	st TabStatus
	ok bool
}

func NewTabTracker() *TabTracker {
	t := &TabTracker{
		cmds: make(chan tabCommand),
		done: make(chan struct{}),
	}
	go t.loop()
	return t
}

func (t *TabTracker) loop() {
	tabs := make(map[int]TabStatus)
	for {
		select {
		case cmd := <-t.cmds:
			switch cmd.op {
			case "set":
				tabs[cmd.tabID] = cmd.st
				cmd.reply <- tabReply{}
			case "get":
				st, ok := tabs[cmd.tabID]
				cmd.reply <- tabReply{st: st, ok: ok}
			case "delete":
				delete(tabs, cmd.tabID)
				cmd.reply <- tabReply{}
			}
		case <-t.done:
			return
		}
	}
}

// Set records the status for a tab.
func (t *TabTracker) Set(tabID int, st TabStatus) {
	reply := make(chan tabReply, 1)
	select {
	case t.cmds <- tabCommand{op: "set", tabID: tabID, st: st, reply: reply}:
		<-reply
	case <-t.done:
	}
}

// Get returns the status for a tab, if tracked.
func (t *TabTracker) Get(tabID int) (TabStatus, bool) {
	reply := make(chan tabReply, 1)
	select {
	case t.cmds <- tabCommand{op: "get", tabID: tabID, reply: reply}:
		r := <-reply
		return r.st, r.ok
	case <-t.done:
		return TabStatus{}, false
	}
}

// Delete forgets a tab, e.g. when it closes.
func (t *TabTracker) Delete(tabID int) {
	reply := make(chan tabReply, 1)
	select {
	case t.cmds <- tabCommand{op: "delete", tabID: tabID, reply: reply}:
		<-reply
	case <-t.done:
	}
}

// Close stops the tracker goroutine. Calls after Close are no-ops.
func (t *TabTracker) Close() {
	close(t.done)
}
