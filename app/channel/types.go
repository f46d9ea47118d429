package channel

import (
	"strings"
)

// Config describes one posting channel: which dataset it draws cities
// from, how its reels are assembled and when they are due.
type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	Dataset  string         `yaml:"dataset"`
	Settings ConfigSettings `yaml:"settings"`
	Caption  ConfigCaption  `yaml:"caption"`
}

type ConfigSettings struct {
	Enabled           bool   `yaml:"enabled"`
	Schedule          string `yaml:"schedule"` // cron expression, e.g. "0 18 * * *"
	ImagesNeeded      int    `yaml:"images_needed"`
	SummarySentences  int    `yaml:"summary_sentences"`
	ChunkSize         int    `yaml:"chunk_size"` // caption chunk budget in characters
	SecondsPerImage   int    `yaml:"seconds_per_image"`
	MusicPath         string `yaml:"music_path"`
	Publish           bool   `yaml:"publish"`
	ReservoirSampling bool   `yaml:"reservoir_sampling"` // stream the dataset instead of loading it
}

type ConfigCaption struct {
	Template string   `yaml:"template"`
	Hashtags []string `yaml:"hashtags"`
}

// RenderCaption fills the caption template for a finished reel. Supported
// placeholders: {title}, {city}, {country}.
func (c *Config) RenderCaption(title, cityName, country string) string {
	template := c.Caption.Template
	if template == "" {
		template = "{title}"
	}

	replacer := strings.NewReplacer(
		"{title}", title,
		"{city}", cityName,
		"{country}", country,
	)
	caption := strings.TrimSpace(replacer.Replace(template))

	if len(c.Caption.Hashtags) > 0 {
		tags := make([]string, 0, len(c.Caption.Hashtags))
		for _, tag := range c.Caption.Hashtags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			if !strings.HasPrefix(tag, "#") {
				tag = "#" + tag
			}
			tags = append(tags, tag)
		}
		if len(tags) > 0 {
			caption = caption + "\n\n" + strings.Join(tags, " ")
		}
	}

	return caption
}
