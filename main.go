package main

import "ec2reporter/cmd"

func main() {
	cmd.Execute()
}
