// Package player announces a prayer once the scheduler decides it is due.
//
// Command plays the adhan through a local audio command, Telegram posts a
// notice to a chat and MQTT publishes an event for home automation. Multi fans
// one signal out to all enabled players.
package player
