// Package pipeline turns one inbound audio item into a tagged file.
//
// # Processor
//
// For every item the Processor:
//
//  1. Creates a private workspace named after a fresh job id
//  2. Copies or downloads the file into it
//  3. Reads the existing tags
//  4. Resolves the final fields with package engine
//  5. Writes the tags and, if enabled, the album cover
//  6. Renames the file after the resolved title
//  7. Records the job in the edit log
//
// # Basic Usage
//
//	p := pipeline.NewProcessor(manager, httpClient, audio.NewTagger(),
//	    pipeline.WithCovers(covers),
//	    pipeline.WithEditLog(gateway),
//	    pipeline.WithProgress(func(e pipeline.ProgressEvent) {
//	        fmt.Println(e.Message)
//	    }),
//	)
//
//	res, err := p.Process(ctx, item)
//	if err != nil {
//	    return err
//	}
//	defer res.Close()
//	// send res.Path as res.FileName
//
// When the bot is switched off, or the file is not an MP3, the Result is
// marked Passthrough or Unsupported and the file is left untouched.
package pipeline
