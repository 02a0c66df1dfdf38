package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/Fy-nite/masm-lsp/backend/api"
	"github.com/Fy-nite/masm-lsp/backend/config"
	"github.com/Fy-nite/masm-lsp/backend/model"
)

func main() {
	var (
		nativesPath   = flag.String("natives", "", "path to a native-function declaration file")
		toolchainPath = flag.String("toolchain", "", "path to a toolchain descriptor file")
		includePath   = flag.String("include", "", "include search directory")
		maxProblems   = flag.Int("max-problems", 0, "diagnostic cap per document (0 = default)")
	)
	flag.Parse()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	global := model.DefaultSettings()
	if *maxProblems > 0 {
		global.MaxNumberOfProblems = *maxProblems
	}
	global.IncludePath = *includePath

	if *toolchainPath != "" {
		tc, err := config.LoadToolchain(*toolchainPath)
		if err != nil {
			log.Fatal(err)
		}
		global.IncludePath = config.EffectiveIncludePath(global, tc)
	}

	var natives map[string]model.NativeSignature
	if *nativesPath != "" {
		loaded, err := config.LoadNatives(*nativesPath)
		if err != nil {
			log.Fatal(err)
		}
		natives = loaded
	}

	mux := http.NewServeMux()

	// Create Connect RPC handler
	handler := api.NewAnalyzerServiceHandler(config.NewStore(global), natives)

	// Register Connect RPC endpoint
	path, connectHandler := newAnalyzerServiceHandler(handler)
	mux.Handle(path, connectHandler)

	// Status page
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>MASM Analyzer</title>
</head>
<body>
    <h1>MASM Analyzer</h1>
    <p>Connect RPC Server is running.</p>
    <p>RPC Endpoint: <code>POST /masm.v1.AnalyzerService/Analyze</code></p>
</body>
</html>`)
	})

	addr := ":" + port
	log.Printf("Server starting on http://localhost%s", addr)

	// Use h2c to support HTTP/2 without TLS
	if err := http.ListenAndServe(addr, h2c.NewHandler(corsMiddleware(mux), &http2.Server{})); err != nil {
		log.Fatal(err)
	}
}

// newAnalyzerServiceHandler creates a Connect RPC handler for AnalyzerService
func newAnalyzerServiceHandler(handler *api.AnalyzerServiceHandler) (string, http.Handler) {
	path := "/masm.v1.AnalyzerService/Analyze"
	connectHandler := connect.NewUnaryHandler(
		path,
		handler.Analyze,
		connect.WithCodec(&api.AnalyzeRequestCodec{}),
	)
	return path, connectHandler
}

// corsMiddleware adds CORS headers for development
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Type, Connect-Protocol-Version")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
