package main

import (
	"fmt"
	"os"

	"github.com/alaalsalam/hisabi-backend/internal/bootstrap"
)

func main() {
	service, err := bootstrap.InitServers()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize sync service: %v\n", err)
		os.Exit(1)
	}

	service.Run()
}
