// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

// Package vncslots implements an RFB (VNC) server whose display is a
// slot-machine game.
//
// The server announces a fixed 512x384 paletted framebuffer named "VNCSlots"
// and speaks the RFB 3.8 protocol as defined in RFC 6143, offering only the
// "None" security type. Any number of clients may connect at once; all of
// them see the same animated display and any of them can play by pressing
// space, enter, or down-arrow, or by clicking the machine's handle.
//
// Rectangles are sent Raw, RRE, or Hextile encoded depending on what the
// client negotiated and on which encoding actually compresses the region.
// A client-side cursor shape is offered through the Cursor pseudo-encoding.
//
// # Basic Usage
//
//	cfg, err := vncslots.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	assets, err := vncslots.LoadAssets(cfg.AssetDir)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	srv, err := vncslots.NewServer(cfg, assets)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := srv.Run(context.Background()); err != nil {
//		log.Fatal(err)
//	}
//
// Game state, the framebuffer, and every client socket are serviced by a
// single event-loop goroutine; per-connection goroutines do nothing but
// blocking reads. See Server for details.
package vncslots
