package main

import (
	"orderharvest/cmd/orderharvest/commands"
	"orderharvest/lib/osutil"
)

func main() {
	commands.ExecuteContext(osutil.SignalContext())
}
