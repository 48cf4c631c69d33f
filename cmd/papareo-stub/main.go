// papareo-stub serves an in-process fake of the Papa Reo API for local
// development, so the transcribe workflow can be exercised without network
// access or a real token.
package main

import (
	"flag"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"papareo/pkg/papareotest"
)

func main() {
	var port int
	var token string
	flag.IntVar(&port, "port", 8077, "port to listen on")
	flag.StringVar(&token, "token", "", "require this API token, empty disables auth")
	flag.Parse()

	fake := papareotest.New()
	fake.Token = token

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Mount("/", fake.Handler())

	log.Printf("fake Papa Reo API listening on :%d", port)
	log.Fatal(http.ListenAndServe(":"+strconv.Itoa(port), r))
}
