package main

import "fmt"

func main() {
	fmt.Println(greet("world"))
}

func greet(name string) string {
	return "hello " + name
}

func unusedHelper() {}

// Exported is skipped unless exported symbols are included.
func Exported() {}

func (s server) handle() {}

type server struct{}
