package main

import (
	"github.com/jamestut/s2r/cmd"
	"github.com/jamestut/s2r/internal/rlog"
)

func main() {
	if err := cmd.Execute(); err != nil {
		rlog.Fatalf(nil, "%v", err)
	}
}
