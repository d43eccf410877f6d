package main

import (
	_ "github.com/theckman/goconstraint/go1.10/gte"

	"github.com/atlasdatatech/sqltomvt/cmd/sqltomvt/cmd"
)

func main() {
	cmd.Execute()
}
