// Copyright 2025 Blink Labs Software
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
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/blinklabs-io/scriptinfo/storage"
	"github.com/spf13/cobra"
)

// maxRecordBytes bounds the size of a record read from a file or stdin
const maxRecordBytes = 16 << 20

func decodeRun(in io.Reader, out io.Writer) error {
	data, err := io.ReadAll(io.LimitReader(in, maxRecordBytes))
	if err != nil {
		return fmt.Errorf("read record: %w", err)
	}
	info, err := storage.Unmarshal(data)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(info); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func decodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [record-file]",
		Short: "Decode and verify a stored script record (reads stdin without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			commonRun()
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return decodeRun(in, cmd.OutOrStdout())
		},
	}
	return cmd
}
