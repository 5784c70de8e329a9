package main

import (
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"

	"connkit/pkg/conn"
	"connkit/pkg/logger"
	"connkit/pkg/serve"
)

// Minimal fasthttp POC: the same echo handler as the main server, wired
// straight through the adapter layer.
func main() {
	addr := flag.String("addr", ":8081", "listen address for fasthttp echo POC")
	flag.Parse()
	logger.Init("")

	h := func(c conn.Conn) (conn.Conn, error) {
		c, body, err := c.ReadBody(1<<20, 32*1024)
		if err != nil {
			return c, err
		}
		return c.Send(http.StatusOK, body)
	}

	srv := &fasthttp.Server{
		Handler:            serve.FastHTTP(h, serve.Options{}),
		Name:               "connkit-fasthttp-poc",
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       5 * time.Second,
		MaxRequestBodySize: 1 << 20,
		StreamRequestBody:  true,
	}
	fmt.Printf("fasthttp echo POC listening on %s\n", *addr)
	if err := srv.ListenAndServe(*addr); err != nil {
		fmt.Printf("fasthttp server exit: %v\n", err)
	}
}
