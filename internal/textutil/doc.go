// Package textutil provides HTML text processing for index payloads.
//
// Titles pushed to the remote index must be plain text: markup stripped
// and entities decoded, matching what a reader sees in the browser.
package textutil
