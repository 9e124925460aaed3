package main

import "academy/internal/app/server"

func main() {
	server.Run()
}
