package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) > 2 {
		os.Exit(2) // want "прямой вызов os.Exit в функции main запрещен"
	}

	stop := func() {
		os.Exit(0)
	}
	_ = stop

	fmt.Println("ok")
	os.Exit(run()) // want "прямой вызов os.Exit в функции main запрещен"
}

func run() int {
	os.Exit(1)
	return 0
}
