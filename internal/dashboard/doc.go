// Package dashboard is the terminal UI for mactop.
//
// The Model reads the latest snapshot of every source from a metrics.Store on
// each tick and renders them as bordered sections: CPU, memory, load,
// energy, GPU, sensors, network and disk, battery and the top tasks by
// energy impact. It never writes to the store.
//
// Layout switches to two columns once the terminal is at least
// BreakpointWide columns wide.
package dashboard
