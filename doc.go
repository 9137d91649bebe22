// Package alohava is a video acceleration runtime modelled on VA-API. A
// Display connects a client to an accelerator driver and owns every entity
// the client creates through it: configs, surfaces, contexts, buffers,
// images and subpictures, each named by a generation-checked 32-bit ID.
//
// Decoding a picture follows the usual sequence:
//
//	d, _ := alohava.GetDisplay("", alohava.Config{})
//	d.Initialize()
//	cfg, _ := d.CreateConfig(alohava.ProfileH264Main, alohava.EntrypointVLD, nil)
//	surfaces, _ := d.CreateSurfaces(1280, 720, alohava.RTFormatYUV420, 4)
//	ctx, _ := d.CreateContext(cfg, 1280, 720, alohava.Progressive, surfaces)
//
//	d.BeginPicture(ctx, surfaces[0])
//	d.RenderPicture(ctx, []alohava.BufferID{pic, sliceParams, sliceData})
//	d.EndPicture(ctx)
//	d.SyncSurface(surfaces[0])
//
// Buffers passed to RenderPicture are consumed. EndPicture returns as soon
// as the job is queued; SyncSurface waits for it.
//
// Drivers register themselves by name with RegisterDriver, usually from an
// init function, and are selected by GetDisplay.
package alohava
