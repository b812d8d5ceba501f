package vocab

// defaultWords is the built-in table. Ordering is part of the public
// contract: token ids are positions in this slice, so entries are only
// ever appended, never reordered or removed.
var defaultWords = []string{
	"<unk>", "<s>", "</s>",

	// greetings and courtesy
	"hello", "hi", "hey", "howdy", "greetings", "welcome", "goodbye",
	"bye", "farewell", "thanks", "thank", "please", "sorry", "yes",
	"no", "okay", "ok", "sure", "maybe", "alright",

	// pronouns and question words
	"i", "you", "he", "she", "it", "we", "they", "me", "him", "her",
	"us", "them", "my", "your", "his", "its", "our", "their", "mine",
	"yours", "myself", "yourself", "this", "that", "these", "those",
	"who", "whom", "whose", "which", "what", "when", "where", "why",
	"how", "someone", "something", "anything", "everything", "nothing",
	"everyone", "anybody",

	// auxiliaries
	"am", "is", "are", "was", "were", "be", "been", "being", "do",
	"does", "did", "done", "have", "has", "had", "having", "will",
	"would", "can", "could", "shall", "should", "may", "might", "must",
	"cannot",

	// common verbs
	"go", "goes", "going", "went", "gone", "come", "comes", "coming",
	"came", "get", "gets", "getting", "got", "make", "makes", "making",
	"made", "know", "knows", "knowing", "knew", "known", "think",
	"thinks", "thinking", "thought", "take", "takes", "taking", "took",
	"taken", "see", "sees", "seeing", "saw", "seen", "look", "looks",
	"looking", "looked", "want", "wants", "wanting", "wanted", "give",
	"gives", "giving", "gave", "given", "use", "uses", "using", "used",
	"find", "finds", "finding", "found", "tell", "tells", "telling",
	"told", "ask", "asks", "asking", "asked", "work", "works",
	"working", "worked", "seem", "seems", "seemed", "feel", "feels",
	"feeling", "felt", "try", "tries", "trying", "tried", "leave",
	"leaves", "leaving", "left", "call", "calls", "calling", "called",
	"need", "needs", "needed", "help", "helps", "helping", "helped",
	"talk", "talks", "talking", "talked", "say", "says", "saying",
	"said", "speak", "speaks", "speaking", "spoke", "run", "runs",
	"running", "ran", "open", "opens", "opened", "close", "closes",
	"closed", "start", "starts", "started", "stop", "stops", "stopped",
	"play", "plays", "playing", "played", "read", "reads", "reading",
	"write", "writes", "writing", "wrote", "listen", "listens",
	"listening", "learn", "learns", "learning", "learned", "show",
	"shows", "showing", "showed", "shown", "send", "sends", "sending",
	"sent", "live", "lives", "living", "lived", "believe", "mean",
	"means", "meant", "keep", "keeps", "kept", "let", "lets", "put",
	"puts", "set", "sets", "turn", "turns", "turned", "wait", "waits",
	"waited", "remember", "forget", "forgot", "understand",
	"understood", "answer", "answered", "check", "checked", "share",
	"shared", "save", "saved", "load", "loaded", "create", "created",
	"change", "changed", "move", "moved", "happen", "happened",

	// function words
	"a", "an", "the", "and", "or", "but", "if", "because", "as",
	"until", "while", "of", "at", "by", "for", "with", "about",
	"against", "between", "into", "through", "during", "before",
	"after", "above", "below", "to", "from", "up", "down", "in",
	"out", "on", "off", "over", "under", "again", "further", "then",
	"once", "here", "there", "all", "any", "both", "each", "few",
	"more", "most", "other", "others", "some", "such", "only", "own",
	"same", "so", "than", "too", "very", "just", "not", "also", "now",
	"together", "without", "within", "around", "along",

	// everyday nouns
	"assistant", "device", "phone", "screen", "battery", "camera",
	"photo", "picture", "image", "gallery", "message", "text", "word",
	"words", "sentence", "question", "questions", "response", "reply",
	"idea", "ideas", "model", "weather", "rain", "sun", "snow",
	"cloud", "temperature", "forecast", "time", "day", "days",
	"night", "morning", "evening", "afternoon", "week", "month",
	"year", "today", "tomorrow", "yesterday", "moment", "home",
	"house", "school", "office", "family", "friend", "friends",
	"people", "person", "name", "thing", "things", "way", "ways",
	"life", "world", "hand", "part", "place", "case", "fact", "group",
	"number", "numbers", "point", "water", "food", "coffee", "tea",
	"music", "song", "book", "books", "story", "news", "game",
	"games", "movie", "joke", "jokes", "fun", "app", "application",
	"setting", "user", "permission", "storage", "memory", "network",
	"internet", "data", "file", "files", "system", "service",
	"language", "english", "country", "city", "street", "road",
	"car", "bus", "train", "trip", "travel", "walk", "door", "window",
	"room", "table", "chair", "light", "color", "sound", "voice",
	"mind", "heart", "head", "eye", "eyes", "body", "air", "fire",
	"earth", "sky", "star", "moon", "tree", "flower", "animal", "dog",
	"cat", "bird",

	// adjectives and adverbs
	"good", "bad", "great", "small", "big", "large", "new", "old",
	"right", "wrong", "high", "low", "long", "short", "easy", "hard",
	"early", "late", "important", "different", "possible", "real",
	"really", "best", "better", "worse", "nice", "fine", "happy",
	"sad", "busy", "free", "full", "empty", "quick", "quickly",
	"slow", "slowly", "fast", "smart", "clever", "kind", "warm",
	"cold", "hot", "cool", "sunny", "rainy", "cloudy", "windy",
	"dark", "bright", "quiet", "loud", "clean", "ready", "simple",
	"little", "less", "least", "much", "many", "lot", "bit", "well",
	"already", "always", "never", "often", "sometimes", "usually",
	"probably", "perhaps", "almost", "enough", "even", "still", "yet",
	"away", "back", "soon", "later", "first", "second", "third",
	"last", "next", "every", "another", "certain", "glad",

	// numbers
	"zero", "one", "two", "three", "four", "five", "six", "seven",
	"eight", "nine", "ten", "eleven", "twelve", "twenty", "hundred",
	"thousand",
}
