// Command streams serves one file to every request, copying it into the
// response as it is read instead of loading it whole.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8000", "listen address")
	file := flag.String("file", "test-file.txt", "file to stream")
	flag.Parse()

	gin.SetMode(gin.ReleaseMode)
	log.Printf("[STREAMS] Listening on %s file=%s", *addr, *file)
	if err := http.ListenAndServe(*addr, newServer(*file)); err != nil {
		log.Fatalf("[STREAMS] server berhenti: %v", err)
	}
}

func newServer(path string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.NoRoute(streamFile(path))
	return r
}

func streamFile(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := os.Open(path)
		if err != nil {
			log.Printf("[STREAMS] open %s: %v", path, err)
			c.String(http.StatusInternalServerError, "File not found...")
			return
		}
		defer func() { _ = f.Close() }()

		size := int64(-1)
		if info, err := f.Stat(); err == nil {
			size = info.Size()
		}
		c.DataFromReader(http.StatusOK, size, "text/plain; charset=utf-8", f, nil)
	}
}
