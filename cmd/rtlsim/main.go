// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command rtlsim builds, optimizes and simulates the built-in example designs.
//
//	rtlsim list
//	rtlsim run counter --cycles 300 --format compact
//	rtlsim run adder --optimize --format vcd > adder.vcd
//	rtlsim run memory --format dot | dot -Tsvg > memory.svg
//
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
