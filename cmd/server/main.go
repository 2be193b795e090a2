package main

import "attend/internal/app/server"

func main() {
	server.Run()
}
