package main

import (
	"context"
	"flag"

	"github.com/grailbio/asteval/asteval"
	"github.com/grailbio/base/log"
)

var (
	jupyterConnectionFlag = flag.String("jupyter-connection", "", "A JSON file specifying jupyter connection config. This flag starts the asteval Jupyter kernel.")
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	flag.Parse()
	ctx := context.Background()
	interp := asteval.New()
	jupyterKernel(ctx, *jupyterConnectionFlag, interp)
}
