// SPDX-License-Identifier: EPL-2.0

// Command audmix mixes audio files into one WAV file.
//
//	audmix mix -o out.wav -v 80 -v 50 voice.wav music.mp3
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
