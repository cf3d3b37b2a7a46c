package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"voice-chat/config"
	"voice-chat/internal/application"
	"voice-chat/internal/domain"
	"voice-chat/internal/infra/audio"
	"voice-chat/internal/infra/jsonfile"
	"voice-chat/internal/infra/keywords"
	"voice-chat/internal/infra/openai"
	"voice-chat/internal/infra/tianapi"
)

func (a *app) newRecognizer() (*application.Recognizer, error) {
	if a.cfg.Speech.APIKey == "" {
		return nil, fmt.Errorf("speech api key is not set (speech.api_key or %s)", config.EnvSpeechAPIKey)
	}

	baseURL := a.cfg.Speech.BaseURL
	if baseURL == "" {
		baseURL = openai.DefaultWhisperURL
	}
	stt := openai.NewWhisperClientWithURL(a.cfg.Speech.APIKey, a.cfg.Speech.Model, baseURL)
	mic := audio.NewMicrophoneSource(a.cfg.Audio.SampleRate, a.cfg.Audio.FramesPerBuffer, a.logger)

	r := application.NewRecognizer(stt, mic, audio.NewFileLoader(), audio.WAVEncoder{}, a.cfg.Recognition.Settings(), a.logger)
	r.SetCalibrationDuration(a.cfg.Audio.Calibration())
	return r, nil
}

func (a *app) newModel(out io.Writer, stream bool) (*application.Model, error) {
	if a.cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("llm api key is not set (llm.api_key or %s)", config.EnvLLMAPIKey)
	}

	baseURL := a.cfg.LLM.BaseURL
	if baseURL == "" {
		baseURL = openai.DefaultChatURL
	}

	opts := []application.ModelOption{
		application.WithUserName(a.cfg.LLM.UserName),
		application.WithModelLogger(a.logger),
		application.WithConversationStore(jsonfile.NewStore()),
	}
	if stream {
		opts = append(opts, application.WithChunkHandler(func(chunk string) {
			fmt.Fprint(out, chunk)
		}))
	}

	return application.NewModel(openai.NewChatClientWithURL(a.cfg.LLM.APIKey, baseURL), a.cfg.LLM.ModelConfig(), opts...)
}

func (a *app) newTianAPI() (*tianapi.Client, error) {
	if a.cfg.TianAPI.APIKey == "" {
		return nil, fmt.Errorf("tianapi key is not set (tianapi.api_key or %s)", config.EnvTianAPIAPIKey)
	}

	opts := []tianapi.Option{tianapi.WithLogger(a.logger)}
	if a.cfg.TianAPI.BaseURL != "" {
		opts = append(opts, tianapi.WithBaseURL(a.cfg.TianAPI.BaseURL))
	}
	return tianapi.NewClient(a.cfg.TianAPI.APIKey, opts...), nil
}

// loadHistory restores a saved conversation if the file exists.
func (a *app) loadHistory(load func(string) error, path string) error {
	err := load(path)
	if err == nil {
		a.logger.Info("conversation restored", "path", path)
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (a *app) chatCommand() *cobra.Command {
	var (
		turns       int
		stream      bool
		language    string
		save        string
		resume      bool
		topK        int
		phraseLimit time.Duration
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Hold a spoken conversation, one phrase per turn",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			recognizer, err := a.newRecognizer()
			if err != nil {
				return err
			}
			model, err := a.newModel(out, stream)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("phrase-limit") {
				phraseLimit = a.cfg.Audio.PhraseTimeLimit.Std()
			}

			chat, err := application.NewChatAPI(recognizer, model, keywords.NewExtractor(),
				application.WithDefaultLanguage(a.cfg.Recognition.Language),
				application.WithPhraseTimeLimit(phraseLimit),
				application.WithChatLogger(a.logger),
				application.WithTranscriptHandler(func(text string) {
					fmt.Fprintf(out, "You: %s\nBot: ", text)
				}),
			)
			if err != nil {
				return err
			}

			if save == "" {
				save = a.cfg.Conversation.HistoryPath
			}
			if resume {
				if err := a.loadHistory(chat.LoadConversation, save); err != nil {
					return err
				}
			}

			for turn := 1; turns <= 0 || turn <= turns; turn++ {
				fmt.Fprintln(out, "Listening...")

				userInput, reply, err := chat.StreamChat(ctx, language, stream)
				if ctx.Err() != nil {
					break
				}
				if err != nil {
					// the transcript line was already started
					if errors.Is(err, &domain.ChatError{Kind: domain.ChatFailed}) {
						fmt.Fprintln(out)
					}
					a.logger.Error("chat turn failed", "turn", turn, "error", err)
					continue
				}

				if stream {
					fmt.Fprintln(out)
				} else {
					fmt.Fprintln(out, reply)
				}

				words := chat.ExtractKeywords(userInput, topK)
				if len(words) > 0 {
					parts := make([]string, 0, len(words))
					for _, k := range words {
						parts = append(parts, fmt.Sprintf("%s(%.2f)", k.Text, k.Weight))
					}
					fmt.Fprintf(out, "Keywords: %s\n", strings.Join(parts, " "))
				}
			}

			if err := chat.SaveConversation(save); err != nil {
				return err
			}
			a.logger.Info("conversation saved", "path", save, "messages", len(chat.ConversationHistory()))
			return nil
		},
	}

	cmd.Flags().IntVar(&turns, "turns", 0, "number of turns, 0 for no limit")
	cmd.Flags().BoolVar(&stream, "stream", true, "print the reply as it is generated")
	cmd.Flags().StringVar(&language, "language", "", "recognition language, e.g. zh-CN or en-US")
	cmd.Flags().StringVar(&save, "save", "", "conversation file (default conversation.history_path)")
	cmd.Flags().BoolVar(&resume, "resume", false, "continue the conversation stored in the save file")
	cmd.Flags().IntVar(&topK, "keywords", application.DefaultTopK, "keywords to extract per turn")
	cmd.Flags().DurationVar(&phraseLimit, "phrase-limit", 0, "maximum phrase length, 0 for no limit")

	return cmd
}

func (a *app) askCommand() *cobra.Command {
	var (
		stream bool
		save   string
	)

	cmd := &cobra.Command{
		Use:   "ask [text...]",
		Short: "Send one typed message to the model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			model, err := a.newModel(out, stream)
			if err != nil {
				return err
			}
			if save != "" {
				if err := a.loadHistory(model.LoadConversation, save); err != nil {
					return err
				}
			}

			reply, err := model.Chat(cmd.Context(), strings.Join(args, " "), stream)
			if err != nil {
				return err
			}
			if stream {
				fmt.Fprintln(out)
			} else {
				fmt.Fprintln(out, reply)
			}

			if save != "" {
				return model.SaveConversation(save)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stream, "stream", false, "print the reply as it is generated")
	cmd.Flags().StringVar(&save, "save", "", "conversation file to continue and update")

	return cmd
}

func (a *app) recognizeCommand() *cobra.Command {
	var (
		file        string
		language    string
		phraseLimit time.Duration
	)

	cmd := &cobra.Command{
		Use:   "recognize",
		Short: "Transcribe an audio file or one phrase from the microphone",
		RunE: func(cmd *cobra.Command, args []string) error {
			recognizer, err := a.newRecognizer()
			if err != nil {
				return err
			}

			var text string
			if file != "" {
				text, err = recognizer.RecognizeFile(cmd.Context(), file, language)
			} else {
				if !cmd.Flags().Changed("phrase-limit") {
					phraseLimit = a.cfg.Audio.PhraseTimeLimit.Std()
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "Listening...")
				text, err = recognizer.RecognizeFromMic(cmd.Context(), language, phraseLimit)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "audio file to transcribe instead of the microphone")
	cmd.Flags().StringVar(&language, "language", "", "recognition language, e.g. zh-CN or en-US")
	cmd.Flags().DurationVar(&phraseLimit, "phrase-limit", 0, "maximum phrase length, 0 for no limit")

	return cmd
}

func (a *app) micsCommand() *cobra.Command {
	var calibrate time.Duration

	cmd := &cobra.Command{
		Use:   "mics",
		Short: "List audio input devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			mic := audio.NewMicrophoneSource(a.cfg.Audio.SampleRate, a.cfg.Audio.FramesPerBuffer, a.logger)
			r := application.NewRecognizer(nil, mic, nil, nil, a.cfg.Recognition.Settings(), a.logger)

			devices, err := r.AvailableMicrophones()
			if err != nil {
				return err
			}
			for i, d := range devices {
				fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", i, d)
			}

			if calibrate <= 0 {
				return nil
			}
			if err := r.AdjustForNoise(cmd.Context(), calibrate); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "energy threshold: %.1f\n", r.Settings().EnergyThreshold)
			return nil
		},
	}

	cmd.Flags().DurationVar(&calibrate, "calibrate", 0, "sample ambient noise on the default device and print the energy threshold")

	return cmd
}

func (a *app) hotwordsCommand() *cobra.Command {
	var num int

	cmd := &cobra.Command{
		Use:   "hotwords <word>",
		Short: "Look up trending words related to a word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newTianAPI()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), client.GetHotwords(cmd.Context(), args[0], num))
		},
	}

	cmd.Flags().IntVar(&num, "num", 5, "number of results")

	return cmd
}

func (a *app) badBoyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "badboy",
		Short: "Fetch a random bad boy quote",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newTianAPI()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), client.GetBadBoyWords(cmd.Context()))
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
