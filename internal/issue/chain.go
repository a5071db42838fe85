// SPDX-License-Identifier: MPL-2.0

package issue

import "strings"

// Chain flattens the causal chain of err into one message per link, depth
// first. Joined errors (Unwrap() []error) contribute each branch in order and
// are indented by nesting depth.
func Chain(err error) []string {
	var out []string
	walkChain(err, 0, &out)
	return out
}

func walkChain(err error, depth int, out *[]string) {
	for err != nil {
		*out = append(*out, strings.Repeat("  ", depth)+err.Error())
		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			for _, branch := range u.Unwrap() {
				walkChain(branch, depth+1, out)
			}
			return
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		default:
			return
		}
	}
}
