package draft

import "time"

// Form is the port onto whatever holds the live workspace fields. A field the
// form does not have reports ok=false.
type Form interface {
	Text(name string) (value string, ok bool)
	Flag(name string) (value bool, ok bool)
	SetText(name, value string)
	SetFlag(name string, value bool)
}

type textField struct {
	name string
	ptr  func(*Snapshot) *string
}

type flagField struct {
	name string
	ptr  func(*Snapshot) *bool
}

// panel ties a result panel's visibility flag to its image payload and the
// result path shown beneath it.
type panel struct {
	flag flagField
	src  textField
	path textField
}

var inputFields = []textField{
	{"projectId", func(s *Snapshot) *string { return &s.ProjectID }},
	{"videoUrl", func(s *Snapshot) *string { return &s.VideoURL }},
	{"apiKey", func(s *Snapshot) *string { return &s.APIKey }},
	{"promptAudioUrl", func(s *Snapshot) *string { return &s.PromptAudioURL }},
	{"promptText", func(s *Snapshot) *string { return &s.PromptText }},
	{"ttsInput", func(s *Snapshot) *string { return &s.TTSInput }},
	{"emoText", func(s *Snapshot) *string { return &s.EmoText }},
	{"batchTTSInput", func(s *Snapshot) *string { return &s.BatchTTSInput }},
	{"batchEmoText", func(s *Snapshot) *string { return &s.BatchEmoText }},
	{"characterName", func(s *Snapshot) *string { return &s.CharacterName }},
	{"characterPrompt", func(s *Snapshot) *string { return &s.CharacterPrompt }},
	{"characterAspectRatio", func(s *Snapshot) *string { return &s.CharacterAspectRatio }},
	{"characterRefName", func(s *Snapshot) *string { return &s.CharacterRefName }},
	{"characterRefImagePath", func(s *Snapshot) *string { return &s.CharacterRefImagePath }},
	{"characterAddedPrompt", func(s *Snapshot) *string { return &s.CharacterAddedPrompt }},
	{"characterRefAspectRatio", func(s *Snapshot) *string { return &s.CharacterRefAspectRatio }},
	{"characterImagePath", func(s *Snapshot) *string { return &s.CharacterImagePath }},
	{"backgroundName", func(s *Snapshot) *string { return &s.BackgroundName }},
	{"backgroundPrompt", func(s *Snapshot) *string { return &s.BackgroundPrompt }},
	{"backgroundAspectRatio", func(s *Snapshot) *string { return &s.BackgroundAspectRatio }},
	{"backgroundRefName", func(s *Snapshot) *string { return &s.BackgroundRefName }},
	{"backgroundRefImagePaths", func(s *Snapshot) *string { return &s.BackgroundRefImagePaths }},
	{"backgroundAddedPrompt", func(s *Snapshot) *string { return &s.BackgroundAddedPrompt }},
	{"backgroundRefAspectRatio", func(s *Snapshot) *string { return &s.BackgroundRefAspectRatio }},
	{"backgroundImagePath", func(s *Snapshot) *string { return &s.BackgroundImagePath }},
}

var panels = []panel{
	{
		flag: flagField{"characterResultDisplayTextVisible", func(s *Snapshot) *bool { return &s.CharacterResultDisplayTextVisible }},
		src:  textField{"characterImageTextSrc", func(s *Snapshot) *string { return &s.CharacterImageTextSrc }},
		path: textField{"characterResultPathText", func(s *Snapshot) *string { return &s.CharacterResultPathText }},
	},
	{
		flag: flagField{"characterResultDisplayRefVisible", func(s *Snapshot) *bool { return &s.CharacterResultDisplayRefVisible }},
		src:  textField{"characterImageRefSrc", func(s *Snapshot) *string { return &s.CharacterImageRefSrc }},
		path: textField{"characterResultPathRef", func(s *Snapshot) *string { return &s.CharacterResultPathRef }},
	},
	{
		flag: flagField{"backgroundResultDisplayTextVisible", func(s *Snapshot) *bool { return &s.BackgroundResultDisplayTextVisible }},
		src:  textField{"backgroundImageTextSrc", func(s *Snapshot) *string { return &s.BackgroundImageTextSrc }},
		path: textField{"backgroundResultPathText", func(s *Snapshot) *string { return &s.BackgroundResultPathText }},
	},
	{
		flag: flagField{"backgroundResultDisplayRefVisible", func(s *Snapshot) *bool { return &s.BackgroundResultDisplayRefVisible }},
		src:  textField{"backgroundImageRefSrc", func(s *Snapshot) *string { return &s.BackgroundImageRefSrc }},
		path: textField{"backgroundResultPathRef", func(s *Snapshot) *string { return &s.BackgroundResultPathRef }},
	},
}

var containerFlags = []flagField{
	{"characterResultContainerVisible", func(s *Snapshot) *bool { return &s.CharacterResultContainerVisible }},
	{"backgroundResultContainerVisible", func(s *Snapshot) *bool { return &s.BackgroundResultContainerVisible }},
}

// FieldNames lists every tracked field name.
func FieldNames() []string {
	names := make([]string, 0, len(inputFields)+3*len(panels)+len(containerFlags))
	for _, f := range inputFields {
		names = append(names, f.name)
	}
	for _, p := range panels {
		names = append(names, p.flag.name, p.src.name, p.path.name)
	}
	for _, f := range containerFlags {
		names = append(names, f.name)
	}
	return names
}

// Capture reads every tracked field from form. Fields the form lacks are
// recorded as "" or false so the snapshot is total over the known field set.
func Capture(form Form, now time.Time) Snapshot {
	var snap Snapshot
	readText := func(f textField) {
		if value, ok := form.Text(f.name); ok {
			*f.ptr(&snap) = value
		}
	}
	readFlag := func(f flagField) {
		if value, ok := form.Flag(f.name); ok {
			*f.ptr(&snap) = value
		}
	}
	for _, f := range inputFields {
		readText(f)
	}
	for _, p := range panels {
		readFlag(p.flag)
		readText(p.src)
		readText(p.path)
	}
	for _, f := range containerFlags {
		readFlag(f)
	}
	snap.Timestamp = now.UnixMilli()
	return snap
}

// Apply writes snap back onto form. A result panel is shown, and its image
// and result path restored, only when its flag is set and its payload is
// present; otherwise the panel is hidden.
func Apply(snap Snapshot, form Form) {
	for _, f := range inputFields {
		form.SetText(f.name, *f.ptr(&snap))
	}
	for _, p := range panels {
		src := *p.src.ptr(&snap)
		if *p.flag.ptr(&snap) && src != "" {
			form.SetFlag(p.flag.name, true)
			form.SetText(p.src.name, src)
			form.SetText(p.path.name, *p.path.ptr(&snap))
			continue
		}
		form.SetFlag(p.flag.name, false)
	}
	for _, f := range containerFlags {
		form.SetFlag(f.name, *f.ptr(&snap))
	}
}

// PanelVisible reports whether form currently shows the panel named by its
// visibility flag.
func PanelVisible(form Form, flagName string) bool {
	for _, p := range panels {
		if p.flag.name != flagName {
			continue
		}
		visible, _ := form.Flag(p.flag.name)
		src, _ := form.Text(p.src.name)
		return visible && src != ""
	}
	return false
}
