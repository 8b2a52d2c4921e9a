package main

import (
	sockim "github.com/sockim-chat/sockim/app"
)

func main() {
	app := sockim.New(nil, nil)
	app.Start()
}
