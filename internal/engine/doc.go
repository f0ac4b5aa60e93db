// Package engine runs the prayer scheduling loop.
//
// Each iteration refreshes the month table (live source, then cache, then the
// table already in memory), plays any prayer whose firing window contains the
// current time, resolves the next prayer and sleeps until it. The sleep is a
// select on the context, a timer and a refresh channel, so shutdown and
// refresh requests never wait for a long sleep to finish.
package engine
