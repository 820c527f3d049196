package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"Bt1QPlayer/core/lyrics"
	"Bt1QPlayer/core/search"
	"Bt1QPlayer/core/upnext"
	"Bt1QPlayer/model"
)

var (
	searchLimit int
	upnextLimit int
	useRadio    bool
)

var dim = color.New(color.Faint)

func printTracks(tracks []model.Track) {
	for i, t := range tracks {
		fmt.Printf("%2d. %s - %s ", i+1, t.Title, t.Artist)
		dim.Printf("[%s %s]\n", t.MediaID, t.Duration)
	}
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "搜索歌曲",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := search.NewManager(10*time.Second,
			search.NewAPIPlugin(cfg.MetadataAPIURL, 0, nil),
			search.NewYTMusicPlugin(),
			search.NewYouTubePlugin(),
		)
		tracks, err := m.Search(cmd.Context(), strings.Join(args, " "), searchLimit)
		if err != nil {
			return err
		}
		printTracks(tracks)
		return nil
	},
}

var lyricsCmd = &cobra.Command{
	Use:   "lyrics <artist> <title>",
	Short: "获取同步歌词",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, err := lyrics.NewClient(cfg.MetadataAPIURL, cfg.LyricsTimeout, nil).Lookup(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		for _, l := range lines {
			dim.Printf("[%02d:%05.2f] ", l.StartMs/60000, float64(l.StartMs%60000)/1000)
			fmt.Println(l.Text)
		}
		return nil
	},
}

var upnextCmd = &cobra.Command{
	Use:   "upnext <mediaId>",
	Short: "获取续播列表",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sources := []upnext.Source{upnext.NewAPIClient(cfg.MetadataAPIURL, 0, nil)}
		if useRadio {
			sources = append(sources, upnext.NewRadioClient(upnextLimit, ""))
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		tracks, err := upnext.NewChain(upnextLimit, sources...).UpNext(ctx, args[0])
		if err != nil {
			return err
		}
		printTracks(tracks)
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "最多显示条数")
	upnextCmd.Flags().IntVarP(&upnextLimit, "limit", "n", 25, "最多显示条数")
	upnextCmd.Flags().BoolVar(&useRadio, "radio", true, "API 无结果时使用 yt-dlp 电台回退")
	rootCmd.AddCommand(searchCmd, lyricsCmd, upnextCmd)
}
