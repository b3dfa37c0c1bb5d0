// Package channel implements credit-based publish/subscribe between actors.
//
// Each subscriber holds a credit: a published message is delivered right away while the
// subscriber has credit and buffered otherwise, so a slow subscriber never blocks the
// publisher nor the other subscribers. Request grants more credit and flushes the buffer.
package channel
