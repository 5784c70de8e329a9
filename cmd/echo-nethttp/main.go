package main

import (
	"flag"
	"fmt"
	"net/http"
	"time"

	"connkit/pkg/conn"
	"connkit/pkg/logger"
	"connkit/pkg/serve"
)

// Minimal net/http POC: the same echo handler as the main server, wired
// straight through the adapter layer with no router or config.
func main() {
	addr := flag.String("addr", ":8082", "listen address for net/http echo POC")
	flag.Parse()
	logger.Init("")

	h := func(c conn.Conn) (conn.Conn, error) {
		c, body, err := c.ReadBody(1<<20, 32*1024)
		if err != nil {
			return c, err
		}
		return c.Send(http.StatusOK, body)
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      serve.NetHTTP(h, serve.Options{}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	fmt.Printf("net/http echo POC listening on %s\n", *addr)
	if err := srv.ListenAndServe(); err != nil {
		fmt.Printf("net/http server exit: %v\n", err)
	}
}
