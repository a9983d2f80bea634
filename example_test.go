package scriptor_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/scriptor"
	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/dsl"
)

// ExampleNew_memory runs a script built in Go, without touching the file system.
func ExampleNew_memory() {
	b := dsl.New("greet").Finally("bye")
	b.Action(1).Entry().
		Do("set", map[string]any{"key": "greeting", "value": "hello"}).
		When("success", dsl.To(2))
	b.Action(2).Do("buffer", map[string]any{"value": "greeted"})
	b.Procedure("bye").Action(1).Entry().Do("profile.set", map[string]any{"path": "last_run", "value": "greet"})

	loader, err := dsl.Loader(b)
	if err != nil {
		log.Fatal(err)
	}

	// The path is empty because a loader is provided.
	engine, err := scriptor.New("", scriptor.WithLoader(loader))
	if err != nil {
		log.Fatal(err)
	}

	profile := domain.NewProfile("acc-1")
	report, err := engine.RunScript(context.Background(), "greet", profile)
	if err != nil {
		log.Fatal(err)
	}

	last, _ := profile.Get("last_run")
	fmt.Printf("steps: %d\n", report.Steps)
	fmt.Printf("finally ran: %t\n", report.FinallyRan)
	fmt.Printf("last run: %v\n", last)
	// Output:
	// steps: 3
	// finally ran: true
	// last run: greet
}
