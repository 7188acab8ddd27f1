// Copyright 2023 s3bridge authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

func main() {
	rootParser := kingpin.CommandLine

	serverParser := rootParser.Command("server", "run the credential broker server")
	serverCmd := &serverCommand{}
	serverCmd.Bind(serverParser)

	listParser := rootParser.Command("list", "list registered services")
	listCmd := &listCommand{}
	listCmd.Bind(listParser)

	addParser := rootParser.Command("add", "register a service")
	addCmd := &addCommand{}
	addCmd.Bind(addParser)

	editParser := rootParser.Command("edit", "update a service's record")
	editCmd := &editCommand{}
	editCmd.Bind(editParser)

	removeParser := rootParser.Command("remove", "delete a service's record")
	removeCmd := &removeCommand{}
	removeCmd.Bind(removeParser)

	statusParser := rootParser.Command("status", "report directory reachability")
	statusCmd := &statusCommand{}
	statusCmd.Bind(statusParser)

	testParser := rootParser.Command("test", "exchange credentials end to end")
	testCmd := &testCommand{}
	testCmd.Bind(testParser)

	switch kingpin.Parse() {
	case "server":
		serverCmd.Run()
	case "list":
		listCmd.Run()
	case "add":
		addCmd.Run()
	case "edit":
		editCmd.Run()
	case "remove":
		removeCmd.Run()
	case "status":
		statusCmd.Run()
	case "test":
		testCmd.Run()
	}
}
