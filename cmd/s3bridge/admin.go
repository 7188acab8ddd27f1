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
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/s3bridge/s3bridge/pkg/directory"
)

// adminTimeout bounds every administrative directory call.
const adminTimeout = 30 * time.Second

func adminContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), adminTimeout)
}

func splitPatterns(raw string) []string {
	var patterns []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

type listCommand struct {
	logOptions
	directoryOptions
}

func (cmd *listCommand) Bind(parser parser) {
	cmd.logOptions.bind(parser)
	cmd.directoryOptions.bind(parser)
}

func (cmd *listCommand) Run() {
	cmd.configureLogger()

	dir, _, err := cmd.buildDirectory()
	if err != nil {
		log.Fatal("error building service directory: ", err.Error())
	}

	ctx, cancel := adminContext()
	defer cancel()

	auths, err := dir.Enumerate(ctx)
	if err != nil {
		log.Fatal("error listing services: ", err.Error())
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tPERMISSIONS\tBUCKETS\tROLE")
	for _, auth := range auths {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", auth.ServiceName, auth.Permissions, strings.Join(auth.BucketPatterns, ","), auth.RoleARN)
	}
	w.Flush()
}

type addCommand struct {
	logOptions
	directoryOptions

	service     string
	buckets     string
	roleARN     string
	permissions string
}

func (cmd *addCommand) Bind(parser parser) {
	cmd.logOptions.bind(parser)
	cmd.directoryOptions.bind(parser)

	parser.Arg("service", "Service name to register").Required().StringVar(&cmd.service)
	parser.Arg("buckets", "Comma-separated bucket patterns, e.g. data-*,logs-2023-*").Required().StringVar(&cmd.buckets)
	parser.Flag("role-arn", "IAM role the broker assumes for this service").Required().StringVar(&cmd.roleARN)
	parser.Flag("permissions", "Permission level the role is provisioned with").Default(string(directory.ReadWrite)).EnumVar(&cmd.permissions, string(directory.ReadOnly), string(directory.ReadWrite), string(directory.Admin))
}

func (cmd *addCommand) Run() {
	cmd.configureLogger()

	store, _, err := cmd.buildStore()
	if err != nil {
		log.Fatal("error building service directory: ", err.Error())
	}

	ctx, cancel := adminContext()
	defer cancel()

	name := directory.Normalize(cmd.service)
	if _, err := store.Lookup(ctx, name); err == nil {
		log.Fatalf("service %s already exists; use edit to change it", name)
	} else if !errors.Is(err, directory.ErrServiceNotFound) {
		log.Fatal("error checking for existing service: ", err.Error())
	}

	auth := &directory.ServiceAuthorization{
		ServiceName:    name,
		RoleARN:        cmd.roleARN,
		BucketPatterns: splitPatterns(cmd.buckets),
		Permissions:    directory.PermissionLevel(cmd.permissions),
	}
	if err := store.Put(ctx, auth); err != nil {
		log.Fatal("error registering service: ", err.Error())
	}

	fmt.Printf("registered %s with patterns %s\n", name, strings.Join(auth.BucketPatterns, ","))
}

type editCommand struct {
	logOptions
	directoryOptions

	service     string
	buckets     string
	roleARN     string
	permissions string
}

func (cmd *editCommand) Bind(parser parser) {
	cmd.logOptions.bind(parser)
	cmd.directoryOptions.bind(parser)

	parser.Arg("service", "Service name to update").Required().StringVar(&cmd.service)
	parser.Flag("buckets", "Replacement comma-separated bucket patterns").StringVar(&cmd.buckets)
	parser.Flag("role-arn", "Replacement role ARN").StringVar(&cmd.roleARN)
	parser.Flag("permissions", "Replacement permission level").EnumVar(&cmd.permissions, string(directory.ReadOnly), string(directory.ReadWrite), string(directory.Admin))
}

func (cmd *editCommand) Run() {
	cmd.configureLogger()

	if cmd.buckets == "" && cmd.roleARN == "" && cmd.permissions == "" {
		log.Fatal("nothing to change: specify --buckets, --role-arn or --permissions")
	}

	store, _, err := cmd.buildStore()
	if err != nil {
		log.Fatal("error building service directory: ", err.Error())
	}

	ctx, cancel := adminContext()
	defer cancel()

	name := directory.Normalize(cmd.service)
	auth, err := store.Lookup(ctx, name)
	if err != nil {
		log.Fatalf("error resolving %s: %s", name, err.Error())
	}

	if cmd.buckets != "" {
		auth.BucketPatterns = splitPatterns(cmd.buckets)
	}
	if cmd.roleARN != "" {
		auth.RoleARN = cmd.roleARN
	}
	if cmd.permissions != "" {
		auth.Permissions = directory.PermissionLevel(cmd.permissions)
	}

	if err := store.Put(ctx, auth); err != nil {
		log.Fatal("error updating service: ", err.Error())
	}

	fmt.Printf("updated %s\n", name)
}

type removeCommand struct {
	logOptions
	directoryOptions

	service string
	force   bool
}

func (cmd *removeCommand) Bind(parser parser) {
	cmd.logOptions.bind(parser)
	cmd.directoryOptions.bind(parser)

	parser.Arg("service", "Service name to delete").Required().StringVar(&cmd.service)
	parser.Flag("force", "Skip the confirmation prompt").BoolVar(&cmd.force)
}

func (cmd *removeCommand) Run() {
	cmd.configureLogger()

	store, _, err := cmd.buildStore()
	if err != nil {
		log.Fatal("error building service directory: ", err.Error())
	}

	ctx, cancel := adminContext()
	defer cancel()

	name := directory.Normalize(cmd.service)
	if _, err := store.Lookup(ctx, name); err != nil {
		log.Fatalf("error resolving %s: %s", name, err.Error())
	}

	if !cmd.force && !confirm(fmt.Sprintf("delete %s?", name)) {
		fmt.Println("aborted")
		return
	}

	if err := store.Delete(ctx, name); err != nil {
		log.Fatal("error deleting service: ", err.Error())
	}

	fmt.Printf("deleted %s\n", name)
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

type statusCommand struct {
	logOptions
	directoryOptions
}

func (cmd *statusCommand) Bind(parser parser) {
	cmd.logOptions.bind(parser)
	cmd.directoryOptions.bind(parser)
}

func (cmd *statusCommand) Run() {
	cmd.configureLogger()

	dir, cfg, err := cmd.buildDirectory()
	if err != nil {
		log.Fatal("error building service directory: ", err.Error())
	}

	ctx, cancel := adminContext()
	defer cancel()

	started := time.Now()
	auths, err := dir.Enumerate(ctx)
	if err != nil {
		fmt.Printf("directory: unreachable (%s)\n", err.Error())
		os.Exit(1)
	}

	fmt.Printf("directory: ok (%s, %s backend)\n", time.Since(started).Round(time.Millisecond), cmd.backend)
	fmt.Printf("services:  %d\n", len(auths))
	if cfg.UniversalRoleARN != "" {
		fmt.Printf("universal: %s\n", cfg.UniversalRoleARN)
	}
}
