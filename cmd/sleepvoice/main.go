package main

import (
	"fmt"
	"os"
	"time"

	"sleepvoice-server-go/internal/cli"
)

// @title                       sleepvoice API
// @version                     1.0
// @description                 Voice command interpretation and spoken responses for bedside devices.
// @BasePath                    /api
// @securityDefinitions.apikey  DeviceToken
// @in                          header
// @name                        Authorization
func main() {
	if len(os.Args) == 1 {
		fmt.Printf("[%s] [INFO] [Bootstrap] starting sleepvoice server...\n", time.Now().Format("2006-01-02 15:04:05.000"))
		os.Args = append(os.Args, "serve")
	}
	if err := cli.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "sleepvoice: %v\n", err)
		os.Exit(1)
	}
}
