package banner

import (
	"fmt"
)

const banner = `
 ██████╗ ██████╗ ███╗   ██╗███╗   ██╗██╗  ██╗██╗████████╗
██╔════╝██╔═══██╗████╗  ██║████╗  ██║██║ ██╔╝██║╚══██╔══╝
██║     ██║   ██║██╔██╗ ██║██╔██╗ ██║█████╔╝ ██║   ██║
██║     ██║   ██║██║╚██╗██║██║╚██╗██║██╔═██╗ ██║   ██║
╚██████╗╚██████╔╝██║ ╚████║██║ ╚████║██║  ██╗██║   ██║
 ╚═════╝ ╚═════╝ ╚═╝  ╚═══╝╚═╝  ╚═══╝╚═╝  ╚═╝╚═╝   ╚═╝
`

// Print displays the startup banner with the effective configuration.
func Print(addr, adapterKind, source, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("Adapter:  %s\n", adapterKind)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if source != "" {
		fmt.Printf("Config source: %s\n", source)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /v1/echo   - Stream the request body back as a chunked response")
	fmt.Println("POST /v1/upload - Parse a multipart/urlencoded body, report params")
	fmt.Println("GET  /v1/info   - Connection facts as JSON (HEAD supported)")
	fmt.Println("GET  /metrics   - Prometheus metrics")
	fmt.Println("GET  /docs/     - API documentation")
	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://localhost%s/v1/echo' --data-binary @file\n", addr)
	fmt.Printf("curl -F field=hello -F f=@file 'http://localhost%s/v1/upload'\n", addr)
	fmt.Println()
}
