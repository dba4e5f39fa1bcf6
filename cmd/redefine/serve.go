package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/redefine-mcp/internal/mcp"
	"github.com/dshills/redefine-mcp/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Printf("%s v%s starting...", mcp.ServerName, version)
		log.Printf("Build Mode: %s, Driver: %s", storage.BuildMode, storage.DriverName)

		sess, err := openSession()
		if err != nil {
			return err
		}

		server, err := mcp.NewServer(sess, log.Default())
		if err != nil {
			_ = sess.Close()
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		errChan := make(chan error, 1)
		go func() {
			log.Println("MCP server ready, listening on stdio...")
			errChan <- server.Serve(ctx)
		}()

		select {
		case sig := <-sigChan:
			log.Printf("Received signal %v, shutting down gracefully...", sig)
			cancel()
			<-errChan
		case err := <-errChan:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
		}

		log.Println("Server stopped")
		return nil
	},
}
